package parser

import (
	"fmt"
	"net/http"

	"DesignCatalog/internal/scanner"
)

// Adapter kinds understood by Build.
const (
	KindOJS        = "ojs"
	KindOJSSummary = "ojs-summary"
	KindOJSLegacy  = "ojs-legacy"
	KindWordPress  = "wordpress"
	KindDSpace     = "dspace"
	KindFeed       = "feed"
)

// AdapterSpec describes one adapter instance.
type AdapterSpec struct {
	Key     string
	Kind    string
	URL     string
	Journal string
}

// DefaultAdapters are the repositories known out of the box.
var DefaultAdapters = []AdapterSpec{
	{Key: "estudos_em_design", Kind: KindOJSLegacy, URL: "https://estudosemdesign.emnuvens.com.br/design/search/search", Journal: "1"},
	{Key: "infodesign", Kind: KindOJS, URL: "https://www.infodesign.org.br/infodesign/search/index"},
	{Key: "human_factors_in_design", Kind: KindOJS, URL: "https://www.revistas.udesc.br/index.php/hfd/search/index", Journal: "40"},
	{Key: "arcos_design", Kind: KindOJS, URL: "https://www.e-publicacoes.uerj.br/arcosdesign/search/index"},
	{Key: "design_e_tecnologia", Kind: KindOJS, URL: "https://www.ufrgs.br/det/index.php/det/search/search"},
	{Key: "triades", Kind: KindOJSSummary, URL: "https://periodicos.ufjf.br/index.php/triades/search/search", Journal: "74"},
	{Key: "educacao_grafica", Kind: KindWordPress, URL: "https://www.educacaografica.inf.br/"},
	{Key: "repositorio_ufrn", Kind: KindDSpace, URL: "https://repositorio.ufrn.br/simple-search"},
}

// Build instantiates the adapter described by spec.
func Build(spec AdapterSpec, client *http.Client) (scanner.Adapter, error) {
	if spec.Key == "" || spec.URL == "" {
		return nil, fmt.Errorf("adapter spec needs key and url: %+v", spec)
	}

	switch spec.Kind {
	case KindOJS, "":
		return NewOJSScanner(spec.Key, spec.URL, spec.Journal, LayoutSearchResults, client), nil
	case KindOJSSummary:
		return NewOJSScanner(spec.Key, spec.URL, spec.Journal, LayoutArticleSummary, client), nil
	case KindOJSLegacy:
		return NewOJSScanner(spec.Key, spec.URL, spec.Journal, LayoutLegacyTable, client), nil
	case KindWordPress:
		return NewWordPressScanner(spec.Key, spec.URL, client), nil
	case KindDSpace:
		return NewDSpaceScanner(spec.Key, spec.URL, client), nil
	case KindFeed:
		return NewFeedScanner(spec.Key, spec.URL, client), nil
	default:
		return nil, fmt.Errorf("adapter %s: unknown kind %q", spec.Key, spec.Kind)
	}
}

// NewRegistry registers the default adapters followed by extra, so extra
// entries replace defaults with the same key.
func NewRegistry(client *http.Client, extra []AdapterSpec) (*scanner.Registry, error) {
	reg := scanner.NewRegistry()
	specs := append(append([]AdapterSpec{}, DefaultAdapters...), extra...)
	for _, spec := range specs {
		adapter, err := Build(spec, client)
		if err != nil {
			return nil, err
		}
		reg.Register(adapter)
	}
	return reg, nil
}
