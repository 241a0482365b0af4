package test

import (
	"math/rand"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomASCIIString returns a pseudo-random ASCII string within the provided bounds.
// When maxLen equals minLen the resulting string always has that exact length.
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += randomIntn(maxLen - minLen + 1)
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = asciiLetters[randomIntn(len(asciiLetters))]
	}
	return string(buf)
}

// RandomOrderInput returns a valid guest checkout with 1..5 lines priced in whole cents.
// Roughly one line in five is a free sample.
func RandomOrderInput() model.OrderInput {
	items := make([]model.Item, 1+randomIntn(5))
	for i := range items {
		price := 0.0
		if randomIntn(5) != 0 {
			price = float64(randomIntn(100000)) / 100
		}
		items[i] = model.Item{
			Name:      RandomASCIIString(3, 20),
			Quantity:  1 + randomIntn(10),
			UnitPrice: price,
		}
	}
	return model.OrderInput{
		Customer: model.Customer{
			Name:    RandomASCIIString(3, 12),
			Phone:   "+91" + RandomASCIIString(10, 10),
			Address: RandomASCIIString(10, 40),
		},
		Items:          items,
		DiscountAmount: float64(randomIntn(500000)) / 100,
	}
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
