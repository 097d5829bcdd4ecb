// Package query holds the latest result of each backend query.
//
// A Store[T] carries the result together with a fetch status (loading and
// error). Every fetch follows the same steps:
//  1. mark loading and clear the previous error
//  2. perform exactly one request
//  3. on success replace the data; on failure record the error message and
//     keep the previous data
//  4. clear loading
//
// Errors never escape a store; they are read from State.Error.
//
// Each fetch starts a new generation and cancels the one in flight. A
// response that arrives for an older generation is discarded, so the most
// recently issued request always wins.
package query
