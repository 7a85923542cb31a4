package service

import "time"

const (
	testWait = time.Second
	testTick = 10 * time.Millisecond
)

func ptr[T any](v T) *T { return &v }
