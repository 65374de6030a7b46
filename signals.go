package pastemagic

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for pastemagic events.
var (
	SignalDetected         = capitan.NewSignal("pastemagic.detect", "Content classified")
	SignalEncryptStart     = capitan.NewSignal("pastemagic.encrypt.start", "Encrypt operation beginning")
	SignalEncryptComplete  = capitan.NewSignal("pastemagic.encrypt.complete", "Encrypt operation finished")
	SignalDecryptStart     = capitan.NewSignal("pastemagic.decrypt.start", "Decrypt operation beginning")
	SignalDecryptComplete  = capitan.NewSignal("pastemagic.decrypt.complete", "Decrypt operation finished")
	SignalProcessorCreated = capitan.NewSignal("pastemagic.processor.created", "Processor instantiated")
	SignalLoadStart        = capitan.NewSignal("pastemagic.load.start", "Load operation beginning")
	SignalLoadComplete     = capitan.NewSignal("pastemagic.load.complete", "Load operation finished")
	SignalStoreStart       = capitan.NewSignal("pastemagic.store.start", "Store operation beginning")
	SignalStoreComplete    = capitan.NewSignal("pastemagic.store.complete", "Store operation finished")
	SignalSendStart        = capitan.NewSignal("pastemagic.send.start", "Send operation beginning")
	SignalSendComplete     = capitan.NewSignal("pastemagic.send.complete", "Send operation finished")
)

// Keys for typed event data.
var (
	KeyKind           = capitan.NewStringKey("kind")
	KeyAlgorithm      = capitan.NewStringKey("algorithm")
	KeyContentType    = capitan.NewStringKey("content_type")
	KeyTypeName       = capitan.NewStringKey("type_name")
	KeySize           = capitan.NewIntKey("size")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyError          = capitan.NewErrorKey("error")
	KeyEncryptedCount = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount = capitan.NewIntKey("decrypted_count")
	KeyMaskedCount    = capitan.NewIntKey("masked_count")
	KeyRedactedCount  = capitan.NewIntKey("redacted_count")
)

// DetectContext classifies content like Detect and emits SignalDetected.
func DetectContext(ctx context.Context, content string) Kind {
	kind := Detect(content)
	capitan.Emit(ctx, SignalDetected,
		KeyKind.Field(string(kind)),
		KeySize.Field(len(content)),
	)
	return kind
}

func emitCipherStart(ctx context.Context, sig capitan.Signal, algorithm string) {
	capitan.Emit(ctx, sig, KeyAlgorithm.Field(algorithm))
}

func emitCipherComplete(ctx context.Context, sig capitan.Signal, algorithm string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyAlgorithm.Field(algorithm),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, sig, fields...)
	} else {
		capitan.Emit(ctx, sig, fields...)
	}
}

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

func emitBoundaryStart(ctx context.Context, sig capitan.Signal, contentType, typeName string) {
	capitan.Emit(ctx, sig,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitLoadComplete emits an event when load finishes.
func emitLoadComplete(ctx context.Context, contentType, typeName string, duration time.Duration, decrypted int, err error) {
	emitBoundaryComplete(ctx, SignalLoadComplete, err,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyDecryptedCount.Field(decrypted),
	)
}

// emitStoreComplete emits an event when store finishes.
func emitStoreComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, encrypted int, err error) {
	emitBoundaryComplete(ctx, SignalStoreComplete, err,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
		KeyEncryptedCount.Field(encrypted),
	)
}

// emitSendComplete emits an event when send finishes.
func emitSendComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, masked, redacted int, err error) {
	emitBoundaryComplete(ctx, SignalSendComplete, err,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
		KeyMaskedCount.Field(masked),
		KeyRedactedCount.Field(redacted),
	)
}

func emitBoundaryComplete(ctx context.Context, sig capitan.Signal, err error, fields ...capitan.Field) {
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, sig, fields...)
		return
	}
	capitan.Emit(ctx, sig, fields...)
}
