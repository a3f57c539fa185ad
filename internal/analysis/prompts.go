package analysis

import "fmt"

const promptEnvelope = `You extract data from a %s submitted for an auto-financing application in Saudi Arabia.
The document may be in English, Arabic or both. Keep names as written; convert Arabic-Indic digits to Western digits.

Return ONLY a JSON object of this shape, with no markdown:
{
  "extracted_data": {%s},
  "confidence": <number between 0 and 1 reflecting how legible and complete the document is>
}
Use null for any field that is not present. Amounts are numbers without separators or currency symbols.`

const salaryFields = `
    "employee_name": string,
    "employer_name": string,
    "job_title": string,
    "national_id": string,
    "monthly_basic_salary": number,
    "monthly_housing_allowance": number,
    "monthly_other_allowances": number,
    "monthly_total_salary": number,
    "currency": string,
    "employment_start_date": "YYYY-MM-DD",
    "issue_date": "YYYY-MM-DD"
  `

const bankFields = `
    "account_holder": string,
    "bank_name": string,
    "iban": string,
    "period_start": "YYYY-MM-DD",
    "period_end": "YYYY-MM-DD",
    "opening_balance": number,
    "closing_balance": number,
    "total_credits": number,
    "total_debits": number,
    "salary_deposits": [{"date": "YYYY-MM-DD", "amount": number, "description": string}],
    "currency": string
  `

func promptFor(t DocumentType) string {
	switch t {
	case BankStatement:
		return fmt.Sprintf(promptEnvelope, "bank statement", bankFields)
	default:
		return fmt.Sprintf(promptEnvelope, "salary certificate", salaryFields)
	}
}

func textPromptFor(t DocumentType, text string) string {
	return promptFor(t) + "\n\nDocument text:\n\"\"\"\n" + text + "\n\"\"\""
}
