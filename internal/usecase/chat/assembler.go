package chat

import (
	"strings"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/tokenizer"
)

// contextIntro instructs the model to answer only from the supplied
// excerpts and to admit when they do not cover the question, instead of
// fabricating an answer.
const contextIntro = `You are an assistant that answers questions about uploaded documents. Keep your replies succinct. You may only use the document excerpts below to answer. If the question is not related to these excerpts or the information is not in them, say that you could not find any information on this topic. Do not go off topic.

Documents:`

// noDocumentsPlaceholder stands in for the excerpt block when retrieval
// returned no candidates.
const noDocumentsPlaceholder = "No documents found"

const questionHeader = "Question:"

// ContextAssembler packs ranked retrieval candidates into a prompt
// bounded by a token budget.
type ContextAssembler struct {
	tok    tokenizer.Tokenizer
	budget int
}

func NewContextAssembler(tok tokenizer.Tokenizer, budget int) *ContextAssembler {
	return &ContextAssembler{
		tok:    tok,
		budget: budget,
	}
}

// Assemble greedily appends candidates in ranked order until adding the
// next one would push the whole prompt (introduction, excerpts and
// question) over the budget. It packs a strict prefix: once a candidate
// does not fit, no later candidate is considered, so the highest-ranked
// content always wins. The question is always appended, even when the
// budget is already spent.
func (a *ContextAssembler) Assemble(candidates []entity.RetrievalCandidate, question string) string {
	tail := "\n\n" + questionHeader + "\n" + question

	var sb strings.Builder
	sb.WriteString(contextIntro)

	if len(candidates) == 0 {
		sb.WriteString("\n")
		sb.WriteString(noDocumentsPlaceholder)
	}

	for _, candidate := range candidates {
		next := sb.String() + "\n\n" + candidate.Content
		if a.tok.Count(next+tail) > a.budget {
			break
		}
		sb.Reset()
		sb.WriteString(next)
	}

	sb.WriteString(tail)
	return sb.String()
}
