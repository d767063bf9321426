package cdt

import (
	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/storage/types"
)

// shortTerms builds the 30 / 60 / 90 day rate ladder
func shortTerms(r30, r60, r90 float64) []TermRate {
	return []TermRate{
		{TermDays: 30, RateEA: r30},
		{TermDays: 60, RateEA: r60},
		{TermDays: 90, RateEA: r90},
	}
}

// StaticSources lists the curated sources, in dispatch order
var StaticSources = []string{
	banks.Bancolombia,
	banks.Davivienda,
	banks.BBVA,
	banks.Ban100,
	banks.Finandina,
	banks.Pichincha,
	banks.Colpatria,
	banks.BancoBogota,
	banks.Popular,
	banks.AtomyRent,
	banks.FincaRaiz,
	banks.Nubank,
	banks.Pibank,
	banks.Lulobank,
}

// StaticTables are the curated rate tables, keyed by source ID
var StaticTables = map[string]StaticTable{
	banks.Bancolombia: {
		Rates:     shortTerms(8.50, 9.00, 9.50),
		MinAmount: 500_000,
	},
	banks.Davivienda: {
		Rates:     shortTerms(8.20, 8.80, 9.30),
		MinAmount: 500_000,
	},
	banks.BBVA: {
		Rates:     shortTerms(8.00, 8.50, 9.00),
		MinAmount: 1_000_000,
	},
	banks.Ban100: {
		Rates:     shortTerms(9.50, 10.00, 10.30),
		MinAmount: 100_000,
	},
	banks.Finandina: {
		Rates:     shortTerms(9.20, 9.70, 10.20),
		MinAmount: 500_000,
	},
	banks.Pichincha: {
		Rates:     shortTerms(8.80, 9.30, 9.80),
		MinAmount: 500_000,
	},
	banks.Colpatria: {
		Rates:     shortTerms(8.30, 8.80, 9.30),
		MinAmount: 500_000,
	},
	banks.BancoBogota: {
		Rates:     shortTerms(8.40, 8.90, 9.40),
		MinAmount: 500_000,
	},
	banks.Popular: {
		Rates:     shortTerms(8.50, 9.00, 9.50),
		MinAmount: 500_000,
	},
	banks.AtomyRent: {
		Product:   types.ProductFiduciaryRights,
		Rates:     shortTerms(15.50, 15.50, 15.50),
		MinAmount: 200_000,
	},
	banks.FincaRaiz: {
		Product:    types.ProductRealEstateYield,
		Conditions: "Rentabilidad por arriendo. Valorizacion adicional ~4-6% anual. Fuente: Fedelonjas",
		Rates:      shortTerms(6.00, 6.50, 7.00),
		MinAmount:  50_000_000,
	},
	banks.Nubank: {
		Product:    types.ProductSavingsAccount,
		Conditions: "Dinero siempre disponible. Sin monto minimo.",
		Rates:      shortTerms(9.25, 9.25, 9.25),
		MinAmount:  1,
	},
	banks.Pibank: {
		Product:    types.ProductSavingsAccount,
		Conditions: "Dinero siempre disponible. Sin comisiones ni cuota de manejo.",
		Rates:      shortTerms(10.00, 10.00, 10.00),
		MinAmount:  1,
	},
	banks.Lulobank: {
		Product:    types.ProductSavingsAccount,
		Conditions: "Hasta 10.5% con nomina >$3M. Cashback 3% restaurantes.",
		Rates:      shortTerms(9.00, 9.00, 9.00),
		MinAmount:  1,
	},
}
