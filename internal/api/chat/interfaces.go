package chat

import "context"

type ChatUsecase interface {
	Ask(ctx context.Context, question string) (string, error)
}
