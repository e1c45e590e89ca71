// Package prompt собирает текст запроса к языковой модели из полей
// пользовательского запроса. Шаблоны фиксированы для каждой возможности.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// LangDetection возвращает запрос на определение языка предложения.
func LangDetection(req *models.PromptRequest) string {
	return fmt.Sprintf("Tell me what language this is sentence '%s'. For example: english, spanish, french, etc.", req.Sentence)
}

// Translation возвращает запрос на перевод предложения с одного языка на другой.
func Translation(req *models.TranslationRequest) string {
	return fmt.Sprintf("Translate this sentence from %s to %s: '%s'", req.Source, req.Target, req.Sentence)
}

// Sentiment возвращает запрос на классификацию тональности предложения.
func Sentiment(req *models.PromptRequest) string {
	return fmt.Sprintf("Classify the following sentence as negative, neutral or positive: '%s'", req.Sentence)
}

// Intent возвращает запрос на классификацию намерения по списку меток.
func Intent(req *models.IntentRequest) string {
	tags := strings.Join(req.Tags, " or ")
	return fmt.Sprintf("Is the intent behind the following text %s: '%s'.Please, only give me a option into tags.", tags, req.Sentence)
}

// Summarize возвращает запрос на извлечение ключевых пунктов сообщения.
func Summarize(req *models.PromptRequest) string {
	return fmt.Sprintf("Extract the key points from this message: '%s'", req.Sentence)
}

// Writer возвращает запрос на генерацию сообщения по заданным пунктам.
func Writer(req *models.WriterRequest) string {
	tags := strings.Join(req.Tags, ", ")
	return fmt.Sprintf(`
    Create a %s with next considerations:

    1. Customer Name: %s
    2. Bullet points: %s.
    3. Write the message in %d words

    And finally, regards from sender: %s
    `, req.MessageType, req.Recipient, tags, req.WordLimit, req.Sender)
}
