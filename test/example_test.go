package test

import (
	"context"
	"fmt"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction for a challenge gate.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := goArgon2.DefaultConfig()
	cfg.Challenge.Enabled = true

	engine, _ := goArgon2.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	_ = engine
}

// ExampleEngine_ComputePow searches for a nonce with two leading zero bits.
func ExampleEngine_ComputePow() {
	cfg := goArgon2.DefaultConfig()
	cfg.Pow.Workers = 2

	engine, err := goArgon2.New().WithConfig(cfg).Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer engine.Close()

	res, err := engine.ComputePow(context.Background(), goArgon2.PowOptions{
		Base:       "0x68656c6c6f",
		Salt:       "73616c7473616c74",
		Difficulty: 2,
		Memory:     64,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Status)
	// Output: found
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *goArgon2.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}
