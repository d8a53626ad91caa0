// Package whisperx runs local WhisperX transcription through uvx.
//
// The service builds the uvx command line (CPU or CUDA index, model, VAD,
// optional language), runs it through an injectable CommandRunner, and reads
// the JSON segments WhisperX writes next to the input. It serves as the
// offline transcription provider when remote models are unavailable.
package whisperx
