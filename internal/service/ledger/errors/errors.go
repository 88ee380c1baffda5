package errors

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	ServiceValidationError struct {
		Msg string
	}
	ServiceNotEnoughFunds struct {
		Msg string
	}
	ServiceUnauthorized struct {
		Msg string
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *ServiceValidationError) Error() string {
	return e.Msg
}

func (e *ServiceNotEnoughFunds) Error() string {
	return e.Msg
}

func (e *ServiceUnauthorized) Error() string {
	return e.Msg
}
