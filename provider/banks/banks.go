// Package banks holds the canonical catalog of Colombian deposit-rate
// sources and the alias table used to map free-form entity names
// (as written by comparison sites) onto canonical source IDs.
package banks

// Bank is a single canonical deposit-rate source
type Bank struct {
	ID      string   // canonical source ID
	Name    string   // display name
	URL     string   // the product page, if any
	Aliases []string // lower-case, accent-free names the source is known by
}

// Canonical source IDs
const (
	Bancolombia     = "bancolombia"
	Davivienda      = "davivienda"
	BBVA            = "bbva"
	BancoBogota     = "banco_bogota"
	Colpatria       = "colpatria"
	AVVillas        = "av_villas"
	Popular         = "popular"
	CajaSocial      = "caja_social"
	Occidente       = "occidente"
	Itau            = "itau"
	Coltefinanciera = "coltefinanciera"
	Serfinanza      = "serfinanza"
	Ban100          = "ban100"
	Finandina       = "finandina"
	Pichincha       = "pichincha"
	Falabella       = "falabella"
	Bancoomeva      = "bancoomeva"
	GNBSudameris    = "gnb_sudameris"
	AtomyRent       = "atomyrent"
	FincaRaiz       = "finca_raiz"
	Nubank          = "nubank"
	Pibank          = "pibank"
	Lulobank        = "lulobank"
	Agrario         = "agrario"
	Bancamia        = "bancamia"
	BancoW          = "banco_w"
	Mibanco         = "mibanco"
	MundoMujer      = "mundo_mujer"
	Coopcentral     = "coopcentral"
	Confiar         = "confiar"
	Credifamilia    = "credifamilia"
	DannRegional    = "dann_regional"
	MejorCDT        = "mejorcdt"
)

// Catalog is the list of every known source
var Catalog = []Bank{
	{
		ID:      Bancolombia,
		Name:    "Bancolombia",
		URL:     "https://www.bancolombia.com/personas/productos-servicios/inversiones/cdt",
		Aliases: []string{"bancolombia"},
	},
	{
		ID:      Davivienda,
		Name:    "Davivienda",
		URL:     "https://www.davivienda.com/wps/portal/personas/nuevo/personas/quiero_invertir/cdt",
		Aliases: []string{"davivienda"},
	},
	{
		ID:      BBVA,
		Name:    "BBVA Colombia",
		URL:     "https://www.bbva.com.co/personas/productos/inversion/cdt.html",
		Aliases: []string{"bbva"},
	},
	{
		ID:      BancoBogota,
		Name:    "Banco de Bogota",
		URL:     "https://www.bancodebogota.com/wps/portal/banco-bogota/bogota/productos/para-ti/inversiones/cdt",
		Aliases: []string{"banco de bogota", "banco bogota"},
	},
	{
		ID:      Colpatria,
		Name:    "Scotiabank Colpatria",
		URL:     "https://www.scotiabankcolpatria.com/personas/inversiones/cdt",
		Aliases: []string{"scotiabank colpatria", "colpatria"},
	},
	{
		ID:      AVVillas,
		Name:    "AV Villas",
		URL:     "https://www.avvillas.com.co/wps/portal/avvillas/banco/personas/productos/inversiones/cdt",
		Aliases: []string{"av villas", "avvillas"},
	},
	{
		ID:      Popular,
		Name:    "Banco Popular",
		URL:     "https://www.bancopopular.com.co/wps/portal/popular/inicio/personas/inversiones/cdt",
		Aliases: []string{"banco popular"},
	},
	{
		ID:      CajaSocial,
		Name:    "Banco Caja Social",
		URL:     "https://www.bancocajasocial.com/personas/productos/inversiones/cdt",
		Aliases: []string{"banco caja social", "caja social"},
	},
	{
		ID:      Occidente,
		Name:    "Banco de Occidente",
		URL:     "https://www.bancodeoccidente.com.co/wps/portal/banco-occidente/bancodeoccidente/para-personas/inversiones/cdt",
		Aliases: []string{"banco de occidente", "occidente"},
	},
	{
		ID:      Itau,
		Name:    "Itau",
		URL:     "https://www.itau.co/personas/inversiones/cdt",
		Aliases: []string{"itau"},
	},
	{
		ID:      Coltefinanciera,
		Name:    "Coltefinanciera",
		URL:     "https://www.coltefinanciera.com.co/productos/cdt",
		Aliases: []string{"coltefinanciera"},
	},
	{
		ID:      Serfinanza,
		Name:    "Serfinanza",
		URL:     "https://www.serfinanza.com.co/cdt",
		Aliases: []string{"serfinanza"},
	},
	{
		ID:      Ban100,
		Name:    "Ban100",
		URL:     "https://www.ban100.com.co/cdt",
		Aliases: []string{"ban100", "ban 100"},
	},
	{
		ID:      Finandina,
		Name:    "Banco Finandina",
		URL:     "https://www.bancofinandina.com/personas/cdt",
		Aliases: []string{"banco finandina", "finandina"},
	},
	{
		ID:      Pichincha,
		Name:    "Banco Pichincha",
		URL:     "https://www.bancopichincha.com.co/web/personas/cdt",
		Aliases: []string{"banco pichincha", "pichincha"},
	},
	{
		ID:      Falabella,
		Name:    "Banco Falabella",
		URL:     "https://www.bancofalabella.com.co/cdt",
		Aliases: []string{"banco falabella", "falabella"},
	},
	{
		ID:      Bancoomeva,
		Name:    "Bancoomeva",
		URL:     "https://www.bancoomeva.com.co/personas/inversiones/cdt",
		Aliases: []string{"bancoomeva"},
	},
	{
		ID:      GNBSudameris,
		Name:    "GNB Sudameris",
		URL:     "https://www.gnbsudameris.com.co/personas/inversiones/cdt",
		Aliases: []string{"gnb sudameris", "sudameris"},
	},
	{
		ID:      AtomyRent,
		Name:    "Atomy Rent",
		URL:     "https://atomyrent.com/",
		Aliases: []string{"atomy rent", "atomyrent"},
	},
	{
		ID:      FincaRaiz,
		Name:    "Finca Raiz Colombia",
		URL:     "https://www.fedelonjas.org.co/",
		Aliases: []string{"finca raiz"},
	},
	{
		ID:      Nubank,
		Name:    "Nubank (Cajitas)",
		URL:     "https://nu.com.co/",
		Aliases: []string{"nu colombia", "nubank"},
	},
	{
		ID:      Pibank,
		Name:    "Pibank",
		URL:     "https://www.pibank.co/",
		Aliases: []string{"pibank"},
	},
	{
		ID:      Lulobank,
		Name:    "Lulo Bank",
		URL:     "https://www.lulobank.com/",
		Aliases: []string{"lulo bank", "lulobank"},
	},
	{ID: Agrario, Name: "Banco Agrario", Aliases: []string{"banco agrario"}},
	{ID: Bancamia, Name: "Bancamia", Aliases: []string{"bancamia"}},
	{ID: BancoW, Name: "Banco W", Aliases: []string{"banco w"}},
	{ID: Mibanco, Name: "Mibanco", Aliases: []string{"mibanco"}},
	{ID: MundoMujer, Name: "Banco Mundo Mujer", Aliases: []string{"mundo mujer"}},
	{ID: Coopcentral, Name: "Coopcentral", Aliases: []string{"coopcentral"}},
	{ID: Confiar, Name: "Confiar", Aliases: []string{"confiar"}},
	{ID: Credifamilia, Name: "Credifamilia", Aliases: []string{"credifamilia"}},
	{ID: DannRegional, Name: "Dann Regional", Aliases: []string{"dann regional"}},
}

// Lookup returns the catalog entry for the given source ID
func Lookup(id string) (Bank, bool) {
	for _, b := range Catalog {
		if b.ID == id {
			return b, true
		}
	}

	return Bank{}, false
}
