package answer

import (
	"strings"

	"github.com/radulovicigor/CBCGchatbot/internal/document"
	"github.com/radulovicigor/CBCGchatbot/internal/llm"
)

const (
	// GreetingReply is the fixed answer to small talk.
	GreetingReply = "Zdravo! Kako vam mogu pomoći?"
	// InappropriateReply is the fixed professionalism reminder.
	InappropriateReply = "Možete izvršiti plaćanje kroz SEPA sistem, ali molimo vas da zadržite profesionalni i pošten način komunikacije. Hvala na razumijevanju."

	maxHistoryTurns  = 6
	maxContextRunes  = 2000
	contextSeparator = "\n\n---\n\n"
)

// SystemPrompt instructs the model to answer only from the supplied context, in short plain text.
const SystemPrompt = `Ti si zvanični asistent Centralne banke Crne Gore (CBCG) za pitanja o SEPA plaćanjima.

Pravila:
- Odgovaraj isključivo na osnovu dostavljenih informacija. Ako odgovor nije u informacijama, reci da nemaš tu informaciju.
- Na pozdrav odgovori samo: "Zdravo! Kako vam mogu pomoći?" i ne ponavljaj pozdrav u ostalim odgovorima.
- Na neprimjerena pitanja odgovori: "Možete izvršiti plaćanje kroz SEPA sistem, ali molimo vas da zadržite profesionalni i pošten način komunikacije. Hvala na razumijevanju."
- Odgovori su kratki i jasni, običan tekst, bez markdown formatiranja, naslova i nabrajanja.
- Ne navodi izvore, stranice ni nazive dokumenata u odgovoru.
- Kada pitanje traži najnovije informacije, koristi najnovije datirane izvore.

Primjeri:
Pitanje: Šta je SEPA?
Odgovor: SEPA je platna zona od 41 zemlje za euro plaćanja.
Pitanje: Kada je Crna Gora pristupila SEPA?
Odgovor: Crna Gora je postala dio SEPA zone 2025. godine.`

// BuildMessages assembles the system instruction, the last turns of history and the context-bearing question.
func BuildMessages(question string, docs []document.Document, history []llm.Message) []llm.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt})
	for _, turn := range history {
		if turn.Content == "" || !turn.IsDialogue() {
			continue
		}
		messages = append(messages, turn)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage(question, docs)})
	return messages
}

func userMessage(question string, docs []document.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, contextBlock(doc))
	}

	var b strings.Builder
	b.WriteString("Pitanje: ")
	b.WriteString(question)
	b.WriteString("\n\nKoristi ove informacije da odgovoriš:\n")
	b.WriteString(strings.Join(blocks, contextSeparator))
	return b.String()
}

func contextBlock(doc document.Document) string {
	content := document.Truncate(doc.Content, maxContextRunes)
	if t, ok := document.ParsePublished(doc.PublishedAt); ok {
		return "[Datum: " + t.Format("2006-01-02") + "]\n" + content
	}
	return content
}
