// Package services defines the error taxonomy shared across pipeline stages
// and the retry wrapper that guards calls to the external analysis
// capability.
//
// Rate-limit detection by status code and message sniffing lives only here;
// the rest of the system sees a typed transient/permanent distinction via
// the exported sentinels.
package services
