package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	CodeTransport        Code = "TRANSPORT_ERROR"
	CodeDecode           Code = "DECODE_ERROR"
	CodeConstruction     Code = "CONSTRUCTION_ERROR"
	CodeFieldAccess      Code = "FIELD_ACCESS_ERROR"
	CodeMutationRejected Code = "MUTATION_REJECTED"
	CodeNotHashable      Code = "NOT_HASHABLE"
	CodeNotFound         Code = "RESOURCE_NOT_FOUND"
	CodeProvisioning     Code = "USER_PROVISIONING_ERROR"
)

func (c Code) String() string {
	return string(c)
}
