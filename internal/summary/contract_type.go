package summary

import (
	"strings"

	"github.com/Armandogl14/Proyecto-grado-ICC/pkg/utils"
)

// ContractType is the coarse contract category used to key fallback
// summaries and generic law lists.
type ContractType string

const (
	TypeRental   ContractType = "alquiler"
	TypeSale     ContractType = "compraventa"
	TypeMortgage ContractType = "hipoteca"
	TypeLabor    ContractType = "laboral"
	TypeGeneral  ContractType = "general"
)

var typeCues = []struct {
	ctype ContractType
	cues  []string
}{
	{TypeRental, []string{"alquiler", "arrendamiento", "inquilino", "arrendador", "arrendatario"}},
	{TypeMortgage, []string{"hipoteca", "hipotecario", "gravamen", "acreedor hipotecario"}},
	{TypeSale, []string{"compraventa", "venta", "vendedor", "comprador"}},
	{TypeLabor, []string{"empleador", "trabajador", "salario", "contrato de trabajo", "labores"}},
}

// DetectContractType classifies the contract by keyword cues, first match
// wins in specificity order (rental and mortgage cues before the broader
// sale vocabulary).
func DetectContractType(contractText string) ContractType {
	folded := strings.ToLower(utils.FoldAccents(contractText))
	for _, tc := range typeCues {
		for _, cue := range tc.cues {
			if strings.Contains(folded, cue) {
				return tc.ctype
			}
		}
	}
	return TypeGeneral
}

// genericLaws are the statute references cited when no verified RAG context
// exists: broad enough to always apply to the contract type, specific
// article numbers deliberately omitted.
var genericLaws = map[ContractType][]string{
	TypeRental: {
		"Código Civil, disposiciones sobre el contrato de arrendamiento",
		"Ley 4314 sobre depósitos de alquileres",
		"Decreto 4807 sobre control de alquileres y desahucios",
	},
	TypeSale: {
		"Código Civil, disposiciones sobre el contrato de venta",
		"Ley 358-05 de protección de los derechos del consumidor",
	},
	TypeMortgage: {
		"Ley 189-11 para el desarrollo del mercado hipotecario",
		"Código Civil, disposiciones sobre hipotecas",
	},
	TypeLabor: {
		"Código de Trabajo de la República Dominicana (Ley 16-92)",
	},
	TypeGeneral: {
		"Código Civil de la República Dominicana",
		"Ley 358-05 de protección de los derechos del consumidor",
	},
}

// GenericLaws returns the fallback statute references for a contract type.
// The slice is a copy; callers may append to it.
func GenericLaws(t ContractType) []string {
	laws, ok := genericLaws[t]
	if !ok {
		laws = genericLaws[TypeGeneral]
	}
	out := make([]string, len(laws))
	copy(out, laws)
	return out
}
