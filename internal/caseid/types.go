package caseid

import "sort"

// CaseType is one entry of the supported case-type catalogue.
type CaseType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var catalogue = map[string]string{
	"CC":        "Criminal Case",
	"CM":        "Civil Miscellaneous",
	"CONT.CAS":  "Contempt Case",
	"CR":        "Civil Revision",
	"CRA":       "Criminal Appeal",
	"CRL.A":     "Criminal Appeal",
	"CRL.M.C":   "Criminal Miscellaneous Case",
	"CRL.REV.P": "Criminal Revision Petition",
	"CS":        "Civil Suit",
	"CWP":       "Civil Writ Petition",
	"CWPIL":     "Civil Writ Petition (PIL)",
	"EXEC":      "Execution Petition",
	"FA":        "First Appeal",
	"FAO":       "First Appeal from Order",
	"LPA":       "Letters Patent Appeal",
	"MA":        "Miscellaneous Application",
	"PIL":       "Public Interest Litigation",
	"RFA":       "Regular First Appeal",
	"RSA":       "Regular Second Appeal",
	"SA":        "Second Appeal",
	"WP":        "Writ Petition",
	"WP(C)":     "Writ Petition (Civil)",
	"WP(CRL)":   "Writ Petition (Criminal)",
}

// Lookup returns the description for a case-type code. The code is
// normalised first, so "wp (c)" finds "WP(C)".
func Lookup(code string) (string, bool) {
	desc, ok := catalogue[normalizeType(code)]
	return desc, ok
}

// Types lists the catalogue ordered by code.
func Types() []CaseType {
	types := make([]CaseType, 0, len(catalogue))
	for code, desc := range catalogue {
		types = append(types, CaseType{Code: code, Description: desc})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Code < types[j].Code })
	return types
}
