// Package docqa embeds the document question-answering pipeline in a Go
// program: indexing a directory of documents into a Redis vector store and
// answering questions grounded in the indexed text.
//
//	client, err := docqa.New(ctx,
//	    docqa.WithRedis("localhost:6379", ""),
//	    docqa.WithEmbedder(myEmbedder),
//	    docqa.WithGenerator(myGenerator),
//	    docqa.WithDocumentsDir("./docs"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	report, _ := client.Ingest(ctx)
//	answer, _ := client.Ask(ctx, "How do I rotate the API key?")
//	fmt.Println(answer.Text)
//
// The embedding and generation providers are supplied by the caller, so the
// package has no hard dependency on a specific model vendor.
package docqa
