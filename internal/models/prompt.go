package models

// PromptRequest — общий запрос возможностей, принимающих одно предложение
// (определение языка, тональность, суммаризация).
type PromptRequest struct {
	Sentence string `json:"sentence" validate:"required"`
}

// TranslationRequest — запрос перевода предложения.
type TranslationRequest struct {
	Sentence string `json:"sentence" validate:"required"`
	Source   string `json:"source" validate:"required"`
	Target   string `json:"target" validate:"required"`
}

// IntentRequest — запрос классификации намерения по списку меток.
type IntentRequest struct {
	Sentence string   `json:"sentence" validate:"required"`
	Tags     []string `json:"tags" validate:"required,min=1"`
}

// WriterRequest — запрос генерации сообщения по заданным пунктам.
type WriterRequest struct {
	MessageType string   `json:"message_type" validate:"required"`
	Sender      string   `json:"sender" validate:"required"`
	Recipient   string   `json:"recipient" validate:"required"`
	Tags        []string `json:"tags" validate:"required,min=1"`
	WordLimit   int      `json:"word_limit" validate:"required,gt=0"`
}
