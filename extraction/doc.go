// Package extraction defines the contracts between the batch pipeline and
// the content extraction services, and the client that calls them.
//
// # Services
//
// A Service turns one DocumentTask into a JSON-like Payload. There is one
// service per modality:
//   - Vision (images) returns fields merged into the document context
//   - Document (PDF, office files, default) returns fields merged into the context
//   - Audio returns a self-contained answer stored under llm_answer
//
// An AttributeExtractor runs once per batch over all extracted documents
// and returns attribute values per document.
//
// # Errors
//
// Every error leaving the Client is either a *TransientError (throttling,
// unavailability, transport failures, timeouts) or a *TaskFailure (the call
// completed but the document could not be processed). Retry decisions are
// made by the caller; the Client makes exactly one service call per Extract.
//
// # Implementations
//
//   - llm: vision and attribute extraction over langchaingo models
//   - document: local text and table extraction with a processed-text cache
//   - audio: speech transcription over the OpenAI audio API
//   - mock: test doubles
package extraction
