package counter

// DidCross решает, пересекла ли опорная точка линию между двумя наблюдениями.
//
// Граница несимметрична: попадание точки на линию засчитывается,
// а уход с линии, на которой точка уже находилась, нет.
func DidCross(prevY, currY, lineY int) bool {
	return (prevY < lineY && currY >= lineY) || (prevY > lineY && currY <= lineY)
}
