package room

// LowestFreeID returns the smallest positive integer not in existing.
func LowestFreeID(existing map[int]struct{}) int {
	id := 1
	for {
		if _, taken := existing[id]; !taken {
			return id
		}
		id++
	}
}
