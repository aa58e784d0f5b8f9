// Package bulkseed creates a news index on an Elasticsearch cluster, seeds
// it through the bulk ingestion pipeline and queries it.
//
//	cluster, err := bulkseed.NewCluster(elasticsearch.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cluster.Close()
//
//	pipeline, err := cluster.NewIngestionPipeline("news-deneme", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Release()
//
//	run, err := pipeline.Ingest(ctx, ingestion.FromSlice(records))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := run.Wait(ctx)
package bulkseed
