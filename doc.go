// Package ekn is a Go client for offline Endless Knowledge content domains.
//
// A client resolves search queries and content identifiers against domains
// stored under a content root, using a xapian-bridge service for full-text
// search.
//
//	client, _ := ekn.New(
//	    ekn.WithContentRoot("/var/lib/ekn"),
//	    ekn.WithBridge("http://127.0.0.1:3004"),
//	    ekn.WithDefaultDomain("animals"),
//	)
//	defer client.Close()
//
//	res, _ := client.Query().Text("big cats").TitleSynopsis().Limit(10).Do(ctx)
//	for _, m := range res.Models {
//	    fmt.Println(m.ID(), m.Title())
//	}
//	if res.Next != nil {
//	    res, _ = res.Next.Do(ctx)
//	}
//
//	obj, _ := client.Object(ctx, "ekn://animals/0123456789abcdef")
package ekn
