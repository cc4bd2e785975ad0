// Package runner drives the function-calling loop of a conversation turn.
//
// Invariant:
//   - every call extracted from one response yields exactly one result, and the
//     results of a round are submitted together as a single provider request.
//
// Flow:
//
//	response(calls) -> execute each -> function_call_output items -> response(...)
//
// The loop stops when a response carries no calls or the round limit is reached.
// Reaching the limit is not an error; the last response is returned as-is.
package runner
