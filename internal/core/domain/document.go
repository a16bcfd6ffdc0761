package domain

import "time"

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentType is the trade-finance document category assigned by
// classification. Unknown or unclassifiable documents are TypeOther.
type DocumentType string

const (
	TypeLetterOfCredit    DocumentType = "LETTER_OF_CREDIT"
	TypeCommercialInvoice DocumentType = "COMMERCIAL_INVOICE"
	TypeBillOfLading      DocumentType = "BILL_OF_LADING"
	TypePackingList       DocumentType = "PACKING_LIST"
	TypeCertificate       DocumentType = "CERTIFICATE"
	TypeOther             DocumentType = "OTHER"
)

// KnownDocumentType reports whether raw names one of the classifier
// categories. The parser maps anything else to TypeOther.
func KnownDocumentType(raw string) bool {
	switch DocumentType(raw) {
	case TypeLetterOfCredit, TypeCommercialInvoice, TypeBillOfLading,
		TypePackingList, TypeCertificate, TypeOther:
		return true
	default:
		return false
	}
}

// Document is one scanned page image referenced by a queue message and
// fetched from object storage. Immutable for the lifetime of a
// processing invocation.
type Document struct {
	ID            string
	SourceBucket  string
	SourceKey     string
	FileExtension string
	Image         []byte
	QueuedAt      time.Time
}
