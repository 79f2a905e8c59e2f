package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing source document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrExtraction signals that text extraction from a document failed.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrStore signals a vector store failure.
	ErrStore = errors.New("vector store error")
	// ErrLedgerWrite signals that the ingestion ledger could not be persisted.
	ErrLedgerWrite = errors.New("ledger write failed")
	// ErrInvalidQuestion signals a rejected question (empty or too long).
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrGeneration signals an answer generation failure.
	ErrGeneration = errors.New("answer generation failed")
	// ErrIngestRunning signals that an ingestion run is already in flight.
	ErrIngestRunning = errors.New("ingestion already running")
)
