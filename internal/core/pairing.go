package core

import "github.com/SkyAshes/fleetradar/internal/models"

// PairFlights 将按时间排序的航班列表配对成过站记录
//
// 对每个有出发机场和实际起飞时间的出港航班,从它前面的航班中
// 向前回溯,找最近一个到达机场等于该出港航班出发机场的进港航班。
// 进港航班必须已降落(有实际降落时间),否则跳过该出港航班。
//
// 同一进港航班可能与多个出港航班配对(如数据缺失导致链条断裂),
// 与逐一配对相比这更贴近真实的过站语义。
func PairFlights(flights []*models.Flight) []*models.TurnaroundRecord {
	records := make([]*models.TurnaroundRecord, 0)

	for idx := 1; idx < len(flights); idx++ {
		outgoing := flights[idx]
		if outgoing.Source == nil || outgoing.ActualDeparture == nil {
			continue
		}

		// 向前回溯最近的匹配进港航班
		incomingIdx := idx - 1
		for incomingIdx >= 0 && !airportsEqual(flights[incomingIdx].Destination, outgoing.Source) {
			incomingIdx--
		}
		if incomingIdx < 0 {
			continue
		}

		incoming := flights[incomingIdx]
		if incoming.ActualArrival == nil {
			continue
		}

		records = append(records, &models.TurnaroundRecord{
			Incoming: incoming,
			Outgoing: outgoing,
		})
	}

	return records
}

// airportsEqual 判断两个机场是否相同,nil视为不相同
func airportsEqual(a, b *models.Airport) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Code == b.Code
}
