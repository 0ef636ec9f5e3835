// Package storage resolves the off-chain documents that BTF-2300 records point
// to: an artist's profileURI and a song's metadataURI.
//
// # Supported References
//
//   - ipfs://<cid>[/path] or a bare CID: read through a Kubo HTTP API node
//     (Options.IpfsURL) with `ipfs cat`; when no node is configured or the
//     node fails, the Lighthouse gateway is used instead, since it serves any
//     IPFS CID
//   - filecoin://<cid>: read through the Lighthouse gateway
//   - http:// and https://: plain GET
//
// CIDs are validated with go-cid before any request is made. Responses
// larger than MaxDocumentSize are rejected.
//
// # Usage
//
//	client, err := storage.New(storage.Options{
//		IpfsURL:       "http://127.0.0.1:5001",
//		LighthouseURL: "https://gateway.lighthouse.storage/ipfs/",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	md, err := client.ReadMetadata(ctx, song.MetadataURI)
//	if err != nil {
//		log.Println("metadata unavailable:", err)
//	}
//	fmt.Println(md.Name, md.Image)
//
// The SDK builds a Client from Config.IpfsURL and Config.LighthouseURL and
// caches decoded documents with CacheTTL.Metadata.
//
// # CID Formats
//
// CIDv0 (legacy):
//   - Starts with "Qm"
//   - 46 characters
//   - Example: QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
//
// CIDv1 (modern):
//   - Starts with "bafybei" or similar
//   - Variable length
//   - Example: bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi
package storage
