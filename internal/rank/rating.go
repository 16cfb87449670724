package rank

var ratingThresholds = []struct{ min, rating int }{
	{15, 10}, {12, 9}, {10, 8}, {8, 7}, {6, 6},
	{5, 5}, {4, 4}, {3, 3}, {2, 2},
}

// Rating maps a raw keyword score onto 1..10 for display.
func Rating(raw int) int {
	for _, t := range ratingThresholds {
		if raw >= t.min {
			return t.rating
		}
	}
	return 1
}
