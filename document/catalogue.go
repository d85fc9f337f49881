package document

// Question is one catalogued question of a category.
type Question struct {
	Key  string
	Text string
}

// Category maps an answers key to its printed title and ordered questions.
type Category struct {
	Key       string
	Title     string
	Questions []Question
}

// Catalogue is the HSE self-assessment layout in print order.
var Catalogue = []Category{
	{
		Key:   "dadosGerais",
		Title: "1. Dados Gerais",
		Questions: []Question{
			{Key: "razaoSocial", Text: "Razão social"},
			{Key: "cnpj", Text: "CNPJ"},
			{Key: "responsavel", Text: "Responsável pelo preenchimento"},
			{Key: "email", Text: "E-mail de contato"},
			{Key: "telefone", Text: "Telefone"},
			{Key: "numeroColaboradores", Text: "Número de colaboradores"},
			{Key: "grauRisco", Text: "Grau de risco (NR-4)"},
		},
	},
	{
		Key:   "conformidadeLegal",
		Title: "2. Conformidade Legal",
		Questions: []Question{
			{Key: "pgr", Text: "Possui Programa de Gerenciamento de Riscos (PGR)?"},
			{Key: "pcmso", Text: "Possui PCMSO atualizado?"},
			{Key: "sesmt", Text: "Possui SESMT dimensionado conforme NR-4?"},
			{Key: "cipa", Text: "Possui CIPA constituída conforme NR-5?"},
			{Key: "nr12", Text: "Máquinas e equipamentos adequados à NR-12?"},
			{Key: "nr35", Text: "Colaboradores treinados em trabalho em altura (NR-35)?"},
		},
	},
	{
		Key:   "saudeSeguranca",
		Title: "3. Saúde e Segurança do Trabalho",
		Questions: []Question{
			{Key: "taxaFrequencia", Text: "Taxa de frequência de acidentes (últimos 12 meses)"},
			{Key: "acidentesFatais", Text: "Houve acidentes fatais nos últimos 3 anos?"},
			{Key: "epi", Text: "Fornece e controla a entrega de EPIs?"},
			{Key: "treinamentos", Text: "Treinamentos de segurança realizados"},
			{Key: "investigacaoIncidentes", Text: "Possui procedimento de investigação de incidentes?"},
		},
	},
	{
		Key:   "meioAmbiente",
		Title: "4. Meio Ambiente",
		Questions: []Question{
			{Key: "licencaAmbiental", Text: "Possui licença ambiental válida?"},
			{Key: "gestaoResiduos", Text: "Possui plano de gerenciamento de resíduos?"},
			{Key: "produtosQuimicos", Text: "Manuseia produtos químicos perigosos?"},
			{Key: "iso14001", Text: "Certificação ISO 14001?"},
		},
	},
	{
		Key:   "documentacao",
		Title: "5. Documentação Anexada",
		Questions: []Question{
			{Key: "anexos", Text: "Documentos anexados"},
			{Key: "observacoes", Text: "Observações do fornecedor"},
		},
	},
}

// Lookup returns the catalogued category for key.
func Lookup(key string) (Category, bool) {
	for _, c := range Catalogue {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
