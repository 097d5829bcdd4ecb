// Package model defines the data types exchanged with the market backend.
//
// Conventions:
//   - Ratios, prices and amounts: decimal.Decimal, decoded from JSON numbers or strings
//   - Dates: backend strings (YYYY-MM-DD), passed through untouched
//   - The session is a single record {id, email, token}
package model
