// Package cdt provides the deposit-rate source adapters.
//
// # Sources
//
// ## Static
//
// Source: one per curated bank (e.g. "ban100", "nubank")
// Provenance: curated
//
// Hand-maintained rate tables for the sources whose product pages don't
// expose machine-readable rates. Static sources always succeed, and cover
// term deposits as well as fiduciary rights, real-estate yields and
// high-yield savings accounts (Nubank, Pibank, Lulo Bank).
//
// ## Generic
//
// Source: the configured bank
// URL: the bank's product page (see provider/banks)
// Provenance: extracted
//
// Fetches the product page and runs the heuristic extractor over it.
// Every table and card candidate is attributed to the configured bank.
// Free-text candidates are kept only when their entity resolves to the
// configured bank. The source fails when the page can't be fetched, or
// when no rate survives extraction.
//
// ## Consolidator (mejorcdt.com)
//
// Source: "mejorcdt"
// URL: https://mejorcdt.com/mejores-cdt-<mes>-<yyyy>
// Provenance: extracted
//
// Comparison pages are published monthly, with Spanish month names
// (e.g. "mejores-cdt-diciembre-2025"). The source walks back from the
// current month (1 month by default), pausing between pages. Entity names
// are mapped to canonical bank IDs through the alias table; unknown
// entities get a slug ID ("Banco Nuevo S.A." -> "banco_nuevo_s_a").
// The source succeeds when any month yields records, and reports the
// failures of every month otherwise.
package cdt
