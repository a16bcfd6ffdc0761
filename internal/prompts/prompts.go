// Package prompts holds the prompt catalog for classification and
// per-document-type extraction. Prompt text is configuration: the
// controllers receive it at construction and never embed it.
package prompts

import "github.com/finbridge/tradedocs/internal/core/domain"

// Classifier asks for a strict-JSON classification of a trade-finance
// document image.
const Classifier = `You are a trade finance document classifier. Analyze this document image and classify it into one of the following categories:

LETTER_OF_CREDIT: letters of credit, documentary credits, LC amendments, standby letters of credit.
COMMERCIAL_INVOICE: commercial invoices, proforma invoices, tax invoices.
BILL_OF_LADING: bills of lading, sea waybills, airway bills, shipping documents.
PACKING_LIST: packing lists, shipping manifests, cargo manifests.
CERTIFICATE: certificates of origin, inspection, quality or insurance certificates.
OTHER: any document that does not clearly fit the above.

Return your classification as valid JSON in this exact structure:

{
    "document_type": "DOCUMENT_TYPE_HERE",
    "confidence": 0.85,
    "complexity_score": 0.6,
    "reasoning": "brief explanation of the classification decision"
}

Focus on accuracy over speed. Better to be uncertain and trigger expert review than to misclassify.`

// LetterOfCredit extracts the LC field set under UCP600 terminology.
const LetterOfCredit = `You are an expert trade finance analyst specializing in Letters of Credit under UCP600 rules. Extract the following fields from this Letter of Credit image and return valid JSON. If a field cannot be determined with confidence, return null rather than guessing.

{
    "extracted_fields": {
        "lc_number": "extracted value or null",
        "issue_date": "YYYY-MM-DD or null",
        "expiry_date": "YYYY-MM-DD or null",
        "applicant": "extracted value or null",
        "beneficiary": "extracted value or null",
        "issuing_bank": "extracted value or null",
        "advising_bank": "extracted value or null",
        "credit_amount": "extracted value or null",
        "currency": "extracted value or null",
        "latest_shipment_date": "YYYY-MM-DD or null",
        "required_documents": ["list of documents or empty array"],
        "payment_terms": "extracted value or null"
    },
    "confidence": 0.85,
    "extraction_notes": "quality assessment and any extraction challenges encountered"
}

Focus on precision and flag any ambiguities for human expert review.`

// CommercialInvoice extracts the invoice field set.
const CommercialInvoice = `You are an expert trade finance analyst. Extract the following fields from this commercial invoice image and return valid JSON. If a field cannot be determined with confidence, return null rather than guessing.

{
    "extracted_fields": {
        "invoice_number": "extracted value or null",
        "invoice_date": "YYYY-MM-DD or null",
        "seller": "extracted value or null",
        "buyer": "extracted value or null",
        "total_amount": "extracted value or null",
        "currency": "extracted value or null",
        "payment_terms": "extracted value or null",
        "incoterms": "extracted value or null"
    },
    "confidence": 0.85,
    "extraction_notes": "quality assessment and any extraction challenges encountered"
}`

// Generic is the fallback for document types without a specialized
// prompt.
const Generic = `You are a trade document analyst. Extract whatever identifying fields are visible in this document image and return valid JSON:

{
    "extracted_fields": {
        "document_number": "extracted value or null",
        "date": "YYYY-MM-DD or null",
        "amount": "extracted value or null"
    },
    "confidence": 0.85,
    "extraction_notes": "quality assessment and any extraction challenges encountered"
}`

// ExtractionCatalog maps document types to their specialized prompts.
func ExtractionCatalog() map[domain.DocumentType]string {
	return map[domain.DocumentType]string{
		domain.TypeLetterOfCredit:    LetterOfCredit,
		domain.TypeCommercialInvoice: CommercialInvoice,
	}
}
