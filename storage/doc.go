// Package storage defines the blob store that holds uploaded and extracted
// media, keyed as files/{entry id}/{filename}.
//
// Backends register themselves on import:
//
//	import (
//		_ "github.com/nezhar/voicevault/storage/local"
//		_ "github.com/nezhar/voicevault/storage/minio"
//		_ "github.com/nezhar/voicevault/storage/s3"
//	)
//
// and storage.New picks one by Config.Provider. The memory subpackage
// provides an in-process Storage for tests.
package storage
