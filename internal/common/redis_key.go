package common

import "fmt"

func RedisKeyProgression(userID string) string {
	return fmt.Sprintf("progression:%s", userID)
}

func RedisKeyProgressionLock(userID string) string {
	return fmt.Sprintf("progression_lock:%s", userID)
}
