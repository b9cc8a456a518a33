package entity

type Prompt struct {
	ID     string
	System string
	Text   string
}

const sequenceSystem = "You are a payments architect who documents payment workflows as Mermaid sequence diagrams. You always answer with a single JSON object and nothing else."

const sequenceText = "Translate the following payment workflow description into a Mermaid sequence diagram.\nRules:\n\n1. Use exactly these participants, omitting only the ones the workflow never touches: Customer, Merchant, PaymentGateway, Acquirer, IssuerBank.\n2. When the workflow involves them, include the payment lifecycle steps: authorization, capture, settlement, refund, void.\n3. The diagram must be valid Mermaid and must start with the line \"sequenceDiagram\".\n4. Respond with a JSON object with exactly two string fields:\n   {\"mermaid\": \"<the diagram source>\", \"notes\": \"<short bullet notes explaining the flow>\"}\n5. No prose, markdown fences, or text outside the JSON object.\n\nWorkflow description:\n"

// SequencePrompt is the fixed instruction template for the generation
// endpoint. The caller's narrative is appended via User.
var SequencePrompt = Prompt{
	ID:     "payment-sequence",
	System: sequenceSystem,
	Text:   sequenceText,
}

func (p Prompt) User(flow string) string {
	return p.Text + flow
}
