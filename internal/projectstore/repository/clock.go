package repository

import "time"

var now = time.Now

func redisNow() string {
	return now().UTC().Format(time.RFC3339Nano)
}
