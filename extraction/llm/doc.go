// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package llm implements vision extraction and attribute extraction on top
// of langchaingo chat models.
//
// Models come from NewModel, which builds an OpenAI-compatible client or an
// Amazon Bedrock client depending on extraction.Config.Backend. Both
// services accept any llms.Model, so tests use langchaingo's fake model.
//
// # Response format
//
// Prompts ask the model to think inside <thinking></thinking> tags and
// answer with a JSON object inside <json></json> tags. Answers are repaired
// for the mistakes models commonly make (code fences, unquoted keys,
// trailing commas, doubled braces) before decoding.
//
// # Model parameters
//
// A request's model_params override the configured defaults per call:
//   - model_id selects the model
//   - temperature sets sampling temperature (default 0)
//   - answer_length caps generated tokens
package llm
