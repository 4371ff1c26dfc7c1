// Package loader reads pretrained word embedding tables.
//
// Supported formats:
//   - NumPy .npy: a single 2D float32 or float64 array (C order)
//   - SafeTensors: a 2D F32 or F64 tensor, chosen by name or as the only 2D tensor
//
// Tables are converted to float32 and fingerprinted with xxhash so callers can
// log which table a model was built from.
//
// Example:
//
//	table, err := loader.LoadEmbedding("glove.npy", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(table.Rows, table.Dim, table.Fingerprint)
package loader
