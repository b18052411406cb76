package log

// Standard field keys.
const (
	LoggerNameKey = "logger"
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "n_samples"
	FeaturesKey   = "n_features"
	ClassesKey    = "n_classes"
	ParamsKey     = "n_params"
	PredsKey      = "n_predictions"
	DurationMsKey = "duration_ms"
	IterationKey  = "iteration"
	LossKey       = "loss"
	GradNormKey   = "grad_norm"
	StepKey       = "step"
	StatusKey     = "status"
	LossTypeKey   = "loss_type"
	ErrorKey      = "error"
)

// Operation and phase values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	PhaseTraining  = "training"
	PhaseInference = "inference"
)
