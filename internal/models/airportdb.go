package models

import "sync"

// AirportDB 以ICAO代码为键的机场数据库
// 所有worker共享同一个实例,读写锁保护内部map
type AirportDB struct {
	airports map[string]*Airport
	mu       sync.RWMutex
}

// NewAirportDB 创建空的机场数据库
func NewAirportDB() *AirportDB {
	return &AirportDB{
		airports: make(map[string]*Airport),
	}
}

// Contains 判断指定ICAO代码是否已有记录
func (db *AirportDB) Contains(code string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, exists := db.airports[code]
	return exists
}

// Get 按ICAO代码查询机场,不存在时返回nil
func (db *AirportDB) Get(code string) *Airport {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.airports[code]
}

// GetOrInsert 返回指定代码的机场,不存在时用给定名称插入新记录
// 并发插入同一代码时保留先到者
func (db *AirportDB) GetOrInsert(code, name string) *Airport {
	db.mu.Lock()
	defer db.mu.Unlock()

	if existing, exists := db.airports[code]; exists {
		return existing
	}

	airport := &Airport{Code: code, Name: name}
	db.airports[code] = airport
	return airport
}

// Len 返回已收录的机场数量
func (db *AirportDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.airports)
}

// All 返回所有机场的快照
func (db *AirportDB) All() []*Airport {
	db.mu.RLock()
	defer db.mu.RUnlock()

	airports := make([]*Airport, 0, len(db.airports))
	for _, a := range db.airports {
		airports = append(airports, a)
	}
	return airports
}
