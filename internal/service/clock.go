package service

import "time"

// Clock cho phép thay nguồn thời gian trong test. Mọi timestamp nghiệp vụ
// (entry_time, exit_time, payment_time) đều lấy qua đây, không gọi time.Now trực tiếp.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func NewRealClock() Clock { return realClock{} }
