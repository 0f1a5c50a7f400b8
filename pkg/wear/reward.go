package wear

const DefaultReward = 100

var finishRewards = map[int]int{1: 800, 2: 500, 3: 300}

// Reward returns the credits paid for finishing at position
func Reward(position int) int {
	if r, ok := finishRewards[position]; ok {
		return r
	}
	return DefaultReward
}
