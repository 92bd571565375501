package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketBurst(t *testing.T) {
	bucket := NewTokenBucket(1, 3)

	// 初始容量内的突发全部放行
	for i := 0; i < 3; i++ {
		if !bucket.Allow() {
			t.Fatalf("第%d次请求应被放行", i+1)
		}
	}
	// 桶空后立即拒绝
	if bucket.Allow() {
		t.Fatal("桶空后应拒绝请求")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	bucket := NewTokenBucket(100, 1)

	if !bucket.Allow() {
		t.Fatal("首个请求应被放行")
	}
	if bucket.Allow() {
		t.Fatal("桶空后应拒绝请求")
	}

	// 100/s的速率下稍等即可补满一个令牌
	time.Sleep(30 * time.Millisecond)
	if !bucket.Allow() {
		t.Fatal("补充令牌后应放行")
	}
}
