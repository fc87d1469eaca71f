package models

// FleetJob 表示队列中的一个待抓取飞机
// 用途:
//   - 在channel中传递飞机详情页链接及其所属航司
//   - worker按注册号去重后处理
type FleetJob struct {
	// Airline 飞机所属航司
	Airline *Airline

	// Aircraft 待抓取详情的飞机 (已有注册号和链接)
	Aircraft *Aircraft
}
