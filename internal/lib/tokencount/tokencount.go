// Package tokencount оценивает число токенов в тексте запроса до обращения
// к провайдеру. Используется кодировка r50k_base — BPE-словарь моделей GPT-3.
package tokencount

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter оценивает число токенов в тексте.
type Counter interface {
	Count(text string) int64
}

// Estimator реализует Counter поверх загруженной BPE-кодировки.
type Estimator struct {
	encoding *tiktoken.Tiktoken
}

// New загружает кодировку r50k_base и возвращает готовый Estimator.
func New() (*Estimator, error) {
	const op = "tokencount.New"
	encoding, err := tiktoken.GetEncoding(tiktoken.MODEL_R50K_BASE)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Estimator{encoding: encoding}, nil
}

// Count возвращает число токенов в тексте.
func (e *Estimator) Count(text string) int64 {
	return int64(len(e.encoding.Encode(text, nil, nil)))
}
