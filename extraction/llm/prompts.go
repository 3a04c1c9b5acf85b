package llm

import (
	"fmt"
	"strings"

	"github.com/poiesic/tabulate/core"
)

const attributeHeader = `You are an AI assistant who is expert in extracting information from documents.
Carefully read the document given below in <document></document> tags.
Extract attributes listed below in <attributes></attributes> tags from the document.
The answer must contain the extracted attributes in JSON format. Do NOT include any other information in the answer.
If the attribute has multiple values, provide them as a list in this format: ["value1", "value2", "value3"].
If the attribute requires providing a description or free-form text, the value of the attribute must contain this text.
Note that some attributes are not directly stated in the document, but their values are implicitly defined in the text.
Do your best to extract a full value for each requested attribute from the document.
If provided, you must also follow the additional instructions in <instructions></instructions>.
Think step by step. First, summarize your thoughts in 2-3 sentences using <thinking></thinking> tags. Next, output the JSON in <json></json> tags. Do NOT include any other information in the answer. Remember that the response MUST be a valid JSON file.

Human:
<example>
Document:
<document>
I would like to apologize for the delay in the delivery of the ordered goods. Unfortunately, there was a delay due to a technical problem in our warehouse.
Your order 754263 has now been shipped and you should receive the goods within the next 2-3 business days. I ask for your understanding regarding these inconveniences.
Kind regards,
Nikita Schulz
Customer Service ABC GmbH
</document>

Attributes to be extracted:
<attributes>
1. customer_name: name of the customer who wrote the email
2. shipment_delay_complaint: whether the email is from a customer complaining about shipment delays
3. urgency_score: how soon we should react to the customer email on a scale from 0 to 1
</attributes>

Output:
<thinking>
The document mentions the customer name in the email signature: Nikita Schulz. In the email, the customer is complaining about shipment delays. There are no data points that indicate very high urgency, so I will assign a neutral score of 0.5.
</thinking>
<json>
{
    "customer_name": "Nikita Schulz",
    "shipment_delay_complaint": true,
    "urgency_score": 0.5
}
</json>
</example>
`

const fewShotTemplate = `<example>
Document:
<document>
%s
</document>

Attributes to be extracted:
<attributes>
%s
</attributes>
%s
Output:
%s
</example>

`

const attributeTail = `Document:
<document>
%s
</document>

Attributes to be extracted:
<attributes>
%s
</attributes>
%s
Output:`

const instructionsTemplate = `
You must follow these additional instructions:
<instructions>
%s
</instructions>
`

const visionSystemPrompt = `You are an AI assistant who is expert in reading images and scanned documents.
Look closely at every attached page and read all visible text, tables, labels and handwriting.
Extract attributes listed below in <attributes></attributes> tags from the attached content.
The answer must contain the extracted attributes in JSON format. Do NOT include any other information in the answer.
If the attribute has multiple values, provide them as a list in this format: ["value1", "value2", "value3"].
If the attribute requires providing a description or free-form text, the value of the attribute must contain this text.
Think step by step. First, describe what the content shows in <thinking></thinking> tags, including any text you can read. Next, output the JSON in <json></json> tags. Remember that the response MUST be a valid JSON file.`

// formatAttributes renders the schema as a numbered list.
func formatAttributes(attrs []core.Attribute) string {
	lines := make([]string, len(attrs))
	for i, a := range attrs {
		if a.Description == "" {
			lines[i] = fmt.Sprintf("%d. %s", i+1, a.Name)
			continue
		}
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, a.Name, a.Description)
	}
	return strings.Join(lines, "\n")
}

func instructionsBlock(instructions string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return ""
	}
	return fmt.Sprintf(instructionsTemplate, instructions)
}

// buildAttributePrompt renders the attribute extraction prompt for one document.
func buildAttributePrompt(document string, attrs []core.Attribute, instructions string, shots []core.FewShot) string {
	attributes := formatAttributes(attrs)
	instr := instructionsBlock(instructions)

	var b strings.Builder
	b.WriteString(attributeHeader)
	for _, shot := range shots {
		fmt.Fprintf(&b, fewShotTemplate, shot.Input, attributes, instr, shot.Output)
	}
	fmt.Fprintf(&b, attributeTail, document, attributes, instr)
	return b.String()
}

// buildVisionPrompt renders the user turn that accompanies attached pages.
func buildVisionPrompt(attrs []core.Attribute) string {
	return fmt.Sprintf("Attributes to be extracted:\n<attributes>\n%s\n</attributes>\n\nOutput:", formatAttributes(attrs))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) (string, bool) {
	if n <= 0 || len(s) <= n {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}
