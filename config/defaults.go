package config

import "github.com/spf13/viper"

// Defaults follow the training setup the checkpoints were produced with:
// 44.1kHz audio, 128 mel bins, 128-frame crops scored 16 at a time.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "fold-predict")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("pipeline.kernel", false)

	v.SetDefault("paths.experiments", "data/experiments")
	v.SetDefault("paths.predictions", "data/predictions")
	v.SetDefault("paths.test_dir", "data/test")
	v.SetDefault("paths.sample_submission", "data/sample_submission.csv")

	v.SetDefault("folds", []int{0, 1, 2, 3, 4})

	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.n_mels", 128)
	v.SetDefault("audio.n_fft", 4096)
	v.SetDefault("audio.win_length", 2560)
	v.SetDefault("audio.hop_length", 694)
	v.SetDefault("audio.fmin", 20.0)
	v.SetDefault("audio.fmax", 22050.0)
	v.SetDefault("audio.top_db", 80.0)

	v.SetDefault("inference.crop_size", 128)
	v.SetDefault("inference.batch_size", 16)
	v.SetDefault("inference.device", "cuda")
	v.SetDefault("inference.checkpoint_ext", ".pth")

	v.SetDefault("services.classifier.url", "http://127.0.0.1:8090")
	v.SetDefault("services.classifier.timeout_seconds", 60)
	v.SetDefault("services.classifier.encoding", "json")
}
