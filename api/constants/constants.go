package constants

// Access levels (usuarios.nivel_acesso)
const (
	RoleCoordenador = "COORDENADOR"
	RoleDiplan      = "DIPLAN"
	RoleDiquali     = "DIQUALI"
	RoleDipli       = "DIPLI"
	RoleVisitante   = "VISITANTE"
)

// AllRoles lists the access levels from most to least privileged.
var AllRoles = []string{RoleCoordenador, RoleDiplan, RoleDiquali, RoleDipli, RoleVisitante}

// Qualification dossier statuses
const (
	QualificacaoEmAnalise = "EM ANALISE"
	QualificacaoConcluido = "CONCLUIDO"
)

// Bidding statuses
const (
	LicitacaoHomologada  = "HOMOLOGADA"
	LicitacaoFracassada  = "FRACASSADA"
	LicitacaoEmAndamento = "EM ANDAMENTO"
	LicitacaoRevogada    = "REVOGADA"
)

// Access request statuses
const (
	AccessRequestPendente  = "PENDENTE"
	AccessRequestAprovada  = "APROVADA"
	AccessRequestRejeitada = "REJEITADA"
)

// Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeText      = "Content-Type"
	ContentTypeMultipart = "multipart/form-data"
	ContentTypeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatBR   = "02/01/2006"
)

// Response keys
const (
	ValueSuccess = "success"
	ValueError   = "error"
	ValueMessage = "message"
)

// Request headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	BearerPrefix        = "Bearer "
)

// Upload form field for imports
const UploadFormField = "file"
