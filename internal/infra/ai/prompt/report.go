package prompt

import (
	"fmt"

	domai "github.com/bryanwahyu/medreport-ai/internal/domain/ai"
)

// Token caps per request kind.
const (
	SummaryTokens  = 1024
	EntityTokens   = 1024
	AnswerTokens   = 1024
	CleaningTokens = 4096
)

const summarySystem = "You are a medical report summarization assistant. Provide concise, accurate summaries of medical reports in 2-3 paragraphs. Focus on key findings, diagnoses, and important medical details. Use clear, professional language."

const entitySystem = `You are a medical entity extraction assistant. Extract important medical entities from reports.
Return a JSON array of objects with this format:
[{"text": "entity text", "type": "TYPE", "category": "Category"}]

Types to extract:
- MEASUREMENT: sizes, dimensions (e.g., "2.5 cm")
- STAGING: cancer stages/grades (e.g., "Stage II", "Grade 3")
- BIOMARKER: medical markers (e.g., "HER2 positive", "ER+")
- DIAGNOSIS: conditions/diagnoses
- PROCEDURE: medical procedures performed
- MEDICATION: drugs mentioned
- ANATOMY: body parts/organs

Only return the JSON array, no other text.`

const answerSystem = "You are a helpful medical assistant. Answer questions about medical reports accurately and clearly. If the answer is not found in the report, say so. Provide helpful context when appropriate, but don't make up information not present in the report."

const cleaningSystem = `You are a medical document processor. Your task is to clean and format OCR-extracted text from medical reports.

Rules:
1. Fix any OCR errors or misspellings
2. Preserve all medical terminology exactly
3. Maintain the document structure (sections, headers, values)
4. Keep all numbers, dates, and measurements accurate
5. Remove any artifacts or noise from OCR
6. Output clean, readable medical report text

Only output the cleaned text, no explanations.`

// TranscribeInstruction is sent with the report image to the vision model.
const TranscribeInstruction = "Extract and transcribe ALL text from this medical report image. Include every word, number, date, and medical term exactly as shown. Preserve the document structure and formatting. Output only the extracted text, nothing else."

// Summary asks for a 2-3 paragraph summary.
func Summary(reportText string) []domai.Message {
	return pair(summarySystem, fmt.Sprintf("Please summarize the following medical report:\n\n%s", reportText))
}

// Entities constrains the reply to a JSON array of {text,type,category}.
func Entities(reportText string) []domai.Message {
	return pair(entitySystem, fmt.Sprintf("Extract medical entities from this report:\n\n%s", reportText))
}

// Answer grounds a question in the report text.
func Answer(reportText, question string) []domai.Message {
	return pair(answerSystem, fmt.Sprintf("Based on the following medical report, please answer the question.\n\nMedical Report:\n%s\n\nQuestion: %s", reportText, question))
}

// Cleaning fixes OCR noise while keeping the report structure.
func Cleaning(rawText string) []domai.Message {
	return pair(cleaningSystem, fmt.Sprintf("Clean and format this OCR-extracted medical report text:\n\n%s", rawText))
}

func pair(system, user string) []domai.Message {
	return []domai.Message{
		{Role: domai.RoleSystem, Content: system},
		{Role: domai.RoleUser, Content: user},
	}
}
