// Package prodsearch embeds the product retrieval core in a Go program.
//
// The client loads a catalog and optional vector space artifacts once and
// answers sparse and dense queries in-process. It is safe for concurrent use.
//
//	client, _ := prodsearch.New(ctx,
//	    prodsearch.WithCatalogFile("products.csv.zip"),
//	    prodsearch.WithFields(
//	        prodsearch.Weight{Name: "product_title", Value: 1.0},
//	        prodsearch.Weight{Name: "product_brand", Value: 0.6},
//	    ),
//	    prodsearch.WithArtifacts("artifacts"),
//	)
//	resp, _ := client.Search(ctx, prodsearch.SearchRequest{Query: "red shoes Acme", TopK: 10})
//	for _, r := range resp.Results {
//	    fmt.Println(r.ID, r.Score, r.Breakdown)
//	}
//
// Dense queries take a raw Vector, or a Query text when an Encoder is configured.
package prodsearch
