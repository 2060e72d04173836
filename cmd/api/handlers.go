package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus/internal/attendance"
	"campus/internal/auth"
	"campus/internal/config"
	"campus/internal/directory"
	"campus/internal/enrollment"
	"campus/internal/metrics"
	"campus/internal/notify"
	"campus/internal/roster"
	"campus/internal/session"
	"campus/internal/store"
)

type api struct {
	cfg         config.App
	students    directory.StudentRepository
	courses     directory.CourseRepository
	faculty     directory.FacultyRepository
	enrollments enrollment.Repository
	enrollSvc   *enrollment.Service
	records     attendance.Store
	resolver    *roster.Resolver
	sessions    *session.Manager
	notices     notify.Queue
	redis       *store.Redis
}

func (a *api) routes(r *gin.Engine) {
	r.POST("/v1/operators/register", a.registerOperator)

	v1 := r.Group("/v1", auth.OperatorAuth(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))

	v1.GET("/students", a.listStudents)
	v1.GET("/students/:id", a.getStudent)
	v1.POST("/students", a.createStudent)
	v1.PUT("/students/:id", a.updateStudent)
	v1.DELETE("/students/:id", a.deleteStudent)
	v1.GET("/students/:id/attendance", a.studentAttendance)

	v1.GET("/courses", a.listCourses)
	v1.GET("/courses/:id", a.getCourse)
	v1.POST("/courses", a.createCourse)
	v1.PUT("/courses/:id", a.updateCourse)
	v1.DELETE("/courses/:id", a.deleteCourse)
	v1.GET("/courses/:id/roster", a.courseRoster)

	v1.GET("/faculty", a.listFaculty)
	v1.GET("/faculty/:id", a.getFaculty)
	v1.POST("/faculty", a.createFaculty)
	v1.PUT("/faculty/:id", a.updateFaculty)
	v1.DELETE("/faculty/:id", a.deleteFaculty)

	v1.POST("/enrollments", a.enroll)
	v1.DELETE("/enrollments/:id", a.withdraw)

	v1.GET("/attendance", a.attendanceByCourseAndDate)
	v1.GET("/stats", a.stats)

	v1.POST("/session/select", a.sessionSelect)
	v1.GET("/session", a.sessionSnapshot)
	v1.PUT("/session/status", a.sessionSetStatus)
	v1.PUT("/session/mark-all", a.sessionMarkAll)
	v1.POST("/session/save", a.sessionSave)
	v1.DELETE("/session", a.sessionAbandon)
}

func (a *api) health(c *gin.Context) {
	redisHealthy := a.redis.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy && a.cfg.QueueBackend == "redis" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		notFound    directory.NotFoundError
		invalid     directory.ValidationError
		notInRoster session.NotInRosterError
		persistErr  session.PersistenceError
		timeoutErr  session.TimeoutError
		dupEnrolled enrollment.ErrAlreadyEnrolled
		fullCourse  enrollment.ErrCourseFull
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notInRoster):
		// Marking outside the roster is a client bug, not bad input.
		log.Printf("roster membership violation: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &dupEnrolled), errors.As(err, &fullCourse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrSelectionSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrNothingMarked),
		errors.Is(err, session.ErrEmptyRoster),
		errors.Is(err, attendance.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.As(err, &persistErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// --- operators ---

func (a *api) registerOperator(c *gin.Context) {
	var req struct {
		OperatorID string `json:"operator_id" binding:"required"`
		Name       string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := auth.Issue(req.OperatorID, req.Name, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// --- students ---

type studentRequest struct {
	Code       string `json:"code"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email"`
	Department string `json:"department" binding:"required"`
	Semester   int    `json:"semester" binding:"required,min=1,max=8"`
	Status     string `json:"status" binding:"omitempty,oneof=active inactive graduated withdrawn"`
}

func (r studentRequest) toStudent() directory.Student {
	return directory.Student{
		Code:       r.Code,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Department: r.Department,
		Semester:   r.Semester,
		Status:     directory.StudentStatus(r.Status),
	}
}

func (a *api) listStudents(c *gin.Context) {
	students, err := a.students.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (a *api) getStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	student, err := a.students.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (a *api) createStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, err := a.students.Create(c.Request.Context(), req.toStudent())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (a *api) updateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student := req.toStudent()
	student.ID = id
	if student.Status == "" {
		student.Status = directory.StudentActive
	}
	updated, err := a.students.Update(c.Request.Context(), student)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *api) deleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.students.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) studentAttendance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := a.students.GetByID(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	records, err := a.records.GetByStudentID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// --- courses ---

type courseRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
	Credits    int    `json:"credits"`
	Semester   int    `json:"semester"`
	Capacity   int    `json:"capacity" binding:"required,min=1"`
	FacultyID  int64  `json:"faculty_id"`
	Status     string `json:"status" binding:"omitempty,oneof=active inactive"`
}

func (r courseRequest) toCourse() directory.Course {
	return directory.Course{
		Code:       r.Code,
		Name:       r.Name,
		Department: r.Department,
		Credits:    r.Credits,
		Semester:   r.Semester,
		Capacity:   r.Capacity,
		FacultyID:  r.FacultyID,
		Status:     directory.CourseStatus(r.Status),
	}
}

func (a *api) listCourses(c *gin.Context) {
	courses, err := a.courses.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (a *api) getCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	course, err := a.courses.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (a *api) createCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := a.courses.Create(c.Request.Context(), req.toCourse())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (a *api) updateCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	existing, err := a.courses.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	course := req.toCourse()
	course.ID = id
	course.EnrolledCount = existing.EnrolledCount
	if course.Status == "" {
		course.Status = existing.Status
	}
	updated, err := a.courses.Update(c.Request.Context(), course)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *api) deleteCourse(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.courses.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) courseRoster(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	students, err := a.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		metrics.RosterResolutions.WithLabelValues("error").Inc()
		writeError(c, err)
		return
	}
	metrics.RosterResolutions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"roster": students})
}

// --- faculty ---

type facultyRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email"`
	Department  string `json:"department" binding:"required"`
	Designation string `json:"designation"`
}

func (r facultyRequest) toFaculty() directory.Faculty {
	return directory.Faculty{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Department:  r.Department,
		Designation: r.Designation,
	}
}

func (a *api) listFaculty(c *gin.Context) {
	members, err := a.faculty.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faculty": members})
}

func (a *api) getFaculty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	member, err := a.faculty.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (a *api) createFaculty(c *gin.Context) {
	var req facultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member, err := a.faculty.Create(c.Request.Context(), req.toFaculty())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (a *api) updateFaculty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req facultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member := req.toFaculty()
	member.ID = id
	updated, err := a.faculty.Update(c.Request.Context(), member)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *api) deleteFaculty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.faculty.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- enrollments ---

func (a *api) enroll(c *gin.Context) {
	var req struct {
		StudentID int64 `json:"student_id" binding:"required"`
		CourseID  int64 `json:"course_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := a.students.GetByID(c.Request.Context(), req.StudentID); err != nil {
		writeError(c, err)
		return
	}
	link, err := a.enrollSvc.Enroll(c.Request.Context(), req.StudentID, req.CourseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (a *api) withdraw(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.enrollSvc.Withdraw(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- attendance reads ---

func (a *api) attendanceByCourseAndDate(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Query("course_id"), 10, 64)
	if err != nil || courseID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id required"})
		return
	}
	date, err := attendance.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := a.records.GetByCourseAndDate(c.Request.Context(), courseID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (a *api) stats(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := a.students.GetAll(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	courses, err := a.courses.GetAll(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	active := 0
	for _, s := range students {
		if s.Status == directory.StudentActive {
			active++
		}
	}
	activeCourses := 0
	enrolled := 0
	for _, course := range courses {
		if course.Status == directory.CourseActive {
			activeCourses++
		}
		enrolled += course.EnrolledCount
	}
	today, err := a.records.GetByDate(ctx, attendance.Today())
	if err != nil {
		writeError(c, err)
		return
	}
	present := 0
	for _, rec := range today {
		if rec.Status == attendance.Present {
			present++
		}
	}
	rate := 0.0
	if len(today) > 0 {
		rate = float64(present) / float64(len(today)) * 100
	}
	c.JSON(http.StatusOK, gin.H{
		"students":              len(students),
		"active_students":       active,
		"courses":               len(courses),
		"active_courses":        activeCourses,
		"total_enrolled":        enrolled,
		"today_marked":          len(today),
		"today_attendance_rate": rate,
	})
}

// --- attendance session ---

func (a *api) sessionSelect(c *gin.Context) {
	var req struct {
		CourseID int64  `json:"course_id" binding:"required"`
		Date     string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := a.sessions.ForOperator(auth.Operator(c))
	if err := sess.Select(c.Request.Context(), req.CourseID, date); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (a *api) sessionSnapshot(c *gin.Context) {
	sess := a.sessions.ForOperator(auth.Operator(c))
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (a *api) sessionSetStatus(c *gin.Context) {
	var req struct {
		StudentID int64  `json:"student_id" binding:"required"`
		Status    string `json:"status" binding:"required,oneof=present absent late"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := a.sessions.ForOperator(auth.Operator(c))
	if err := sess.SetStatus(req.StudentID, attendance.Status(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (a *api) sessionMarkAll(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=present absent late"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := a.sessions.ForOperator(auth.Operator(c))
	if err := sess.MarkAll(attendance.Status(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (a *api) sessionSave(c *gin.Context) {
	operator := auth.Operator(c)
	sess := a.sessions.ForOperator(operator)
	batch, err := sess.Save(c.Request.Context())
	if err != nil {
		metrics.SessionSaves.WithLabelValues("error").Inc()
		if pubErr := a.notices.Publish(c.Request.Context(), notify.NewNotice(notify.LevelError, operator, "attendance save failed")); pubErr != nil {
			log.Printf("notice publish failed: %v", pubErr)
		}
		writeError(c, err)
		return
	}
	metrics.SessionSaves.WithLabelValues("ok").Inc()
	metrics.RecordsUpserted.Add(float64(len(batch)))
	if pubErr := a.notices.Publish(c.Request.Context(), notify.NewNotice(notify.LevelInfo, operator, "attendance marked successfully")); pubErr != nil {
		log.Printf("notice publish failed: %v", pubErr)
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(batch), "records": batch})
}

func (a *api) sessionAbandon(c *gin.Context) {
	sess := a.sessions.ForOperator(auth.Operator(c))
	sess.Abandon()
	c.Status(http.StatusNoContent)
}
