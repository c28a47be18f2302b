// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("runs/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = report.Save(ctx, store, results, report.Options{K: 10})
//
// Reads use ranged GETs, streaming writes use multipart uploads with CRC32C
// checksums, and listing paginates transparently.
package s3
